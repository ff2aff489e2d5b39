package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// KalmanParams are the tunable noise parameters of the KalmanFilter
type KalmanParams struct {
	// ProcessNoise is the value placed on each diagonal element of the
	// process noise covariance
	ProcessNoise float64
	// MeasurementNoise is the value placed on each diagonal element of the
	// measurement noise covariance.  Smaller values trust the visual tracker
	// more relative to the motion model.
	MeasurementNoise float64
	// InitialCovariance is the diagonal of the state covariance set when the
	// filter is seeded
	InitialCovariance float64
}

// DefaultKalmanParams returns a process noise of 0.03 and unit measurement
// noise and initial covariance
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{
		ProcessNoise:      0.03,
		MeasurementNoise:  1.0,
		InitialCovariance: 1.0,
	}
}

// KalmanFilter is a constant velocity filter over the state (x, y, vx, vy)
// observing position (x, y) once per tracking cycle
type KalmanFilter struct {
	params KalmanParams
	// transition is the 4x4 constant velocity motion model
	transition *mat.Dense
	// measurement is the 2x4 matrix projecting state to position
	measurement *mat.Dense
	processCov  *mat.Dense
	measureCov  *mat.Dense
	// state is the current state mean
	state *mat.VecDense
	// covariance is the current 4x4 state covariance
	covariance *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter(p KalmanParams) *KalmanFilter {

	// x' = x + vx, y' = y + vy, velocities carry over
	transition := mat.NewDense(4, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	measurement := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})

	processCov := mat.NewDense(4, 4, nil)

	for i := 0; i < 4; i++ {
		processCov.Set(i, i, p.ProcessNoise)
	}

	measureCov := mat.NewDense(2, 2, []float64{
		p.MeasurementNoise, 0,
		0, p.MeasurementNoise,
	})

	kf := &KalmanFilter{
		params:      p,
		transition:  transition,
		measurement: measurement,
		processCov:  processCov,
		measureCov:  measureCov,
		state:       mat.NewVecDense(4, nil),
		covariance:  mat.NewDense(4, 4, nil),
	}

	return kf
}

// Initiate seeds the filter at the given position with zero velocity
func (kf *KalmanFilter) Initiate(x, y float64) {

	kf.state = mat.NewVecDense(4, []float64{x, y, 0, 0})
	kf.covariance = mat.NewDense(4, 4, nil)

	for i := 0; i < 4; i++ {
		kf.covariance.Set(i, i, kf.params.InitialCovariance)
	}
}

// Correct updates the state with a measured position
func (kf *KalmanFilter) Correct(x, y float64) error {

	// project the state covariance to measurement space, S = H*P*H' + R
	hp := mat.NewDense(2, 4, nil)
	hp.Mul(kf.measurement, kf.covariance)

	hpht := mat.NewDense(2, 2, nil)
	hpht.Mul(hp, kf.measurement.T())
	hpht.Add(hpht, kf.measureCov)

	innovationCov := mat.NewSymDense(2, nil)

	for i := 0; i < 2; i++ {
		for j := i; j < 2; j++ {
			innovationCov.SetSym(i, j, (hpht.At(i, j)+hpht.At(j, i))/2)
		}
	}

	chol := mat.Cholesky{}

	if ok := chol.Factorize(innovationCov); !ok {
		return errors.New("failed to factorize innovation covariance")
	}

	// K' = inv(S) * H * P, which gives K = P*H'*inv(S) as P is symmetric
	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, hp); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	// innovation between measurement and projected state
	innovation := mat.NewVecDense(2, []float64{
		x - kf.state.AtVec(0),
		y - kf.state.AtVec(1),
	})

	delta := mat.NewVecDense(4, nil)
	delta.MulVec(gainT.T(), innovation)
	kf.state.AddVec(kf.state, delta)

	// P = P - K*H*P
	khp := mat.NewDense(4, 4, nil)
	khp.Mul(gainT.T(), hp)

	newCov := mat.NewDense(4, 4, nil)
	newCov.Sub(kf.covariance, khp)
	kf.covariance = newCov

	return nil
}

// Predict advances the state by one cycle and returns the predicted position
func (kf *KalmanFilter) Predict() (x, y float64) {

	next := mat.NewVecDense(4, nil)
	next.MulVec(kf.transition, kf.state)
	kf.state = next

	// P = F*P*F' + Q
	fp := mat.NewDense(4, 4, nil)
	fp.Mul(kf.transition, kf.covariance)

	cov := mat.NewDense(4, 4, nil)
	cov.Mul(fp, kf.transition.T())
	cov.Add(cov, kf.processCov)
	kf.covariance = cov

	return kf.state.AtVec(0), kf.state.AtVec(1)
}

// State returns the current position and velocity estimate
func (kf *KalmanFilter) State() (x, y, vx, vy float64) {
	return kf.state.AtVec(0), kf.state.AtVec(1), kf.state.AtVec(2), kf.state.AtVec(3)
}

// Covariance returns a copy of the state covariance
func (kf *KalmanFilter) Covariance() *mat.Dense {
	return mat.DenseCopyOf(kf.covariance)
}
