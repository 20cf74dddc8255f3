package optim

import (
	"math"

	"github.com/synapse-ml/synapse/internal/array"
)

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float64    // learning rate (default: 0.001)
	Betas [2]float64 // moving-average coefficients (default: [0.9, 0.999])
	Eps   float64    // numerical stability term (default: 1e-8)
}

// Adam implements the Adam (adaptive moment estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param -= lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014).
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m, v  *array.Array // moment estimates, recreated when the packed length changes
}

// NewAdam creates an Adam optimizer with defaults applied to zero fields.
func NewAdam(cfg AdamConfig) *Adam {
	if cfg.LR == 0 {
		cfg.LR = 0.001
	}
	if cfg.Betas[0] == 0 {
		cfg.Betas[0] = 0.9
	}
	if cfg.Betas[1] == 0 {
		cfg.Betas[1] = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return &Adam{lr: cfg.LR, beta1: cfg.Betas[0], beta2: cfg.Betas[1], eps: cfg.Eps}
}

// Step implements Optimizer.
func (a *Adam) Step(params, grads *array.Array) {
	if a.m == nil || a.m.Len() != params.Len() {
		a.m = array.New(params.Len())
		a.v = array.New(params.Len())
		a.t = 0
	}
	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	p := params.Data()
	g := grads.Data()
	m := a.m.Data()
	v := a.v.Data()
	for i := range p {
		m[i] = a.beta1*m[i] + (1.0-a.beta1)*g[i]
		v[i] = a.beta2*v[i] + (1.0-a.beta2)*g[i]*g[i]
		mHat := m[i] / biasCorrection1
		vHat := v[i] / biasCorrection2
		p[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

// LR returns the current learning rate.
func (a *Adam) LR() float64 { return a.lr }

// SetLR updates the learning rate. Useful for scheduling.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// Timestep returns the current timestep.
func (a *Adam) Timestep() int { return a.t }
