package optim

import (
	"github.com/synapse-ml/synapse/internal/array"
)

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // learning rate (default: 0.01)
	Momentum float64 // momentum factor (default: 0.0, range: [0, 1))
}

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param -= lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param -= lr * velocity
type SGD struct {
	lr       float64
	momentum float64
	velocity *array.Array // recreated when the packed length changes
}

// NewSGD creates an SGD optimizer with defaults applied to zero fields.
func NewSGD(cfg SGDConfig) *SGD {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return &SGD{lr: cfg.LR, momentum: cfg.Momentum}
}

// Step implements Optimizer.
func (s *SGD) Step(params, grads *array.Array) {
	if s.momentum == 0 {
		params.AddScaled(-s.lr, grads)
		return
	}
	if s.velocity == nil || s.velocity.Len() != params.Len() {
		s.velocity = array.New(params.Len())
	}
	s.velocity.Scale(s.momentum)
	s.velocity.Add(grads)
	params.AddScaled(-s.lr, s.velocity)
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 { return s.lr }

// SetLR updates the learning rate. Useful for scheduling.
func (s *SGD) SetLR(lr float64) { s.lr = lr }
