package net

import (
	"fmt"
	"io"
	"strings"
)

func layerName(i, last int) string {
	switch i {
	case 0:
		return "Input Layer"
	case last:
		return "Output Layer"
	default:
		return fmt.Sprintf("Layer %d", i+1)
	}
}

// Summary prints a summary of the network architecture.
func (n *Network) Summary(w io.Writer) {
	rule := strings.Repeat("=", 65)
	fmt.Fprintln(w, "Model: Feedforward")
	fmt.Fprintln(w, strings.Repeat("_", 65))
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, rule)

	last := len(n.layers) - 1
	for i, l := range n.layers {
		params := 0
		if i > 0 {
			params = n.weights[i-1].Len()
		}
		name := fmt.Sprintf("%s (%s)", layerName(i, last), l.Activation())
		if i == 0 {
			name = layerName(i, last)
		}
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", name, fmt.Sprintf("(%d)", l.Width()), params)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total params: %d\n", n.ParamCount())
	fmt.Fprintf(w, "Learning rate: %g, momentum: %g, train bias: %t\n", n.sgd.LearningRate, n.sgd.Momentum, n.trainBias)
}

// Describe prints every outgoing weight of every unit, bias nodes included.
func (n *Network) Describe(w io.Writer) {
	last := len(n.layers) - 1
	for i, ws := range n.weights {
		fmt.Fprintf(w, "\n%s\n", layerName(i, last))
		for _, node := range n.layers[i].Nodes() {
			if node.Bias {
				fmt.Fprint(w, "Bias Node - \tAssociated weights : \t")
			} else {
				fmt.Fprintf(w, "Node %d - \tAssociated weights : \t", node.Index+1)
			}
			for dst := 0; dst < ws.Out(); dst++ {
				fmt.Fprintf(w, "%.6f \t", ws.Edge(node.Index, dst).Weight)
			}
			fmt.Fprintln(w)
		}
	}
}
