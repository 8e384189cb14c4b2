package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/perceptron/perceptron"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// 2 inputs -> 3 hidden -> 1 output. XOR is not linearly separable, so
	// the hidden layer is required.
	topology := []int{2, 3, 1}
	lr := 0.1

	fmt.Printf("Network architecture: %d-%d-%d\n", topology[0], topology[1], topology[2])
	fmt.Println("Activation functions: ReLU (hidden), Sigmoid (output)")
	fmt.Println("Loss function: BCE")
	fmt.Printf("Optimizer: SGD with learning rate %g, momentum %g\n", lr, perceptron.Momentum)

	network, err := perceptron.New(topology, lr, perceptron.WithSeed(42), perceptron.WithTrainBias(true))
	if err != nil {
		fmt.Printf("Error building network: %v\n", err)
		return
	}

	trainX := [][]float64{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
	}
	trainY := [][]float64{
		{0},
		{1},
		{1},
		{0},
	}

	for epoch := 0; epoch < 5000; epoch++ {
		totalLoss := 0.0
		for i := range trainX {
			if err := network.Forward(trainX[i]); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			loss, err := network.Backward(trainY[i])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			totalLoss += loss
		}
		if epoch%500 == 0 {
			fmt.Printf("Epoch %d, Loss: %.6f\n", epoch, totalLoss/float64(len(trainX)))
		}
	}

	fmt.Println("\nTesting trained network:")
	original := predictAll(network, trainX)
	for i := range trainX {
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", trainX[i], original[i], trainY[i][0])
	}

	dir, err := os.MkdirTemp("", "xor")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "xor.mlpw")

	fmt.Println("\nSaving network to disk...")
	if err := network.Save(path); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}

	fmt.Println("Loading network from disk...")
	loaded, err := perceptron.Load(path, lr, perceptron.WithTrainBias(true))
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}

	fmt.Println("\nVerifying loaded network:")
	restored := predictAll(loaded, trainX)
	allMatch := true
	for i := range trainX {
		match := "OK"
		if math.Abs(original[i]-restored[i]) > 1e-12 {
			match = "MISMATCH"
			allMatch = false
		}
		fmt.Printf("Input: %v, Original: %.4f, Loaded: %.4f [%s]\n", trainX[i], original[i], restored[i], match)
	}

	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
	}
}

func predictAll(n *perceptron.Network, xs [][]float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if err := n.Forward(x); err != nil {
			return nil
		}
		p, err := n.Predict()
		if err != nil {
			return nil
		}
		out[i] = p[0]
	}
	return out
}
