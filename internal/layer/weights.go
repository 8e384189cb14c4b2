package layer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/perceptron/internal/opt"
)

// Edge is a read-only view of one connection.
type Edge struct {
	Weight      float64
	DeltaWeight float64
}

// Weights connects a predecessor layer to its successor.
// w[i][j] is the weight from predecessor unit i to successor unit j; b[j] is
// the weight from the predecessor's bias node to successor unit j. dw and db
// hold the last applied updates.
type Weights struct {
	w, dw *mat.Dense
	b, db *mat.VecDense

	// Scratch for the pre-activation sums.
	z *mat.VecDense
}

// NewWeights creates in x out weights plus out bias weights, each drawn from
// init in predecessor-major, successor-minor order with the bias row last.
func NewWeights(in, out int, init func() float64) *Weights {
	w := mat.NewDense(in, out, nil)
	b := mat.NewVecDense(out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, init())
		}
	}
	for j := 0; j < out; j++ {
		b.SetVec(j, init())
	}
	return &Weights{
		w:  w,
		dw: mat.NewDense(in, out, nil),
		b:  b,
		db: mat.NewVecDense(out, nil),
		z:  mat.NewVecDense(out, nil),
	}
}

// In returns the number of real predecessor units.
func (ws *Weights) In() int {
	r, _ := ws.w.Dims()
	return r
}

// Out returns the number of successor units.
func (ws *Weights) Out() int {
	_, c := ws.w.Dims()
	return c
}

// Len returns the number of edges, bias edges included.
func (ws *Weights) Len() int {
	return (ws.In() + 1) * ws.Out()
}

// Edge returns the connection from predecessor unit src to successor unit
// dst. src == In() addresses the bias node. It panics on an index outside the
// matrix; Network.Edge checks its indices.
func (ws *Weights) Edge(src, dst int) Edge {
	if src == ws.In() {
		return Edge{Weight: ws.b.AtVec(dst), DeltaWeight: ws.db.AtVec(dst)}
	}
	return Edge{Weight: ws.w.At(src, dst), DeltaWeight: ws.dw.At(src, dst)}
}

// SetWeight overwrites one weight. src == In() addresses the bias node.
func (ws *Weights) SetWeight(src, dst int, v float64) {
	if src == ws.In() {
		ws.b.SetVec(dst, v)
		return
	}
	ws.w.Set(src, dst, v)
}

// Matrix exposes the predecessor x successor weight matrix.
func (ws *Weights) Matrix() mat.Matrix {
	return ws.w
}

// Bias exposes the bias weight vector.
func (ws *Weights) Bias() mat.Vector {
	return ws.b
}

// Forward sets next's outputs to f(Wᵀx + b) where x is prev's outputs.
func (ws *Weights) Forward(prev, next *Layer) {
	ws.z.MulVec(ws.w.T(), prev.OutputVec())
	if prev.HasBias() {
		ws.z.AddScaledVec(ws.z, BiasOutput, ws.b)
	}
	act := next.Activation()
	for j := 0; j < ws.z.Len(); j++ {
		next.SetOutput(j, act.Activate(ws.z.AtVec(j)))
	}
}

// Backprop sets prev's gradients to (W·g) ⊙ f'(prev outputs) where g is
// next's gradients.
func (ws *Weights) Backprop(prev, next *Layer) {
	grads := prev.gradients
	grads.MulVec(ws.w, next.GradientVec())
	act := prev.Activation()
	for i := 0; i < grads.Len(); i++ {
		grads.SetVec(i, grads.AtVec(i)*act.Derivative(prev.outputs.AtVec(i)))
	}
}

// Direction returns x ⊗ g, the downhill direction for w before the learning
// rate and momentum are applied.
func (ws *Weights) Direction(prev, next *Layer) *mat.Dense {
	var d mat.Dense
	d.Outer(1, prev.OutputVec(), next.GradientVec())
	return &d
}

// Update applies one momentum step to every weight leaving a real
// predecessor unit. Bias weights move only when trainBias is set.
func (ws *Weights) Update(prev, next *Layer, sgd opt.SGD, trainBias bool) {
	sgd.StepInPlace(ws.w, ws.dw, ws.Direction(prev, next))
	if trainBias && prev.HasBias() {
		sgd.StepVecInPlace(ws.b, ws.db, next.GradientVec())
	}
}

// Params returns every weight flattened predecessor-major with the bias row
// last.
func (ws *Weights) Params() []float64 {
	params := make([]float64, 0, ws.Len())
	params = append(params, ws.w.RawMatrix().Data...)
	params = append(params, ws.b.RawVector().Data...)
	return params
}

// SetParams loads weights in Params order and clears the momentum history.
// len(params) must equal Len().
func (ws *Weights) SetParams(params []float64) {
	n := ws.In() * ws.Out()
	copy(ws.w.RawMatrix().Data, params[:n])
	copy(ws.b.RawVector().Data, params[n:])
	ws.dw.Zero()
	ws.db.Zero()
}
