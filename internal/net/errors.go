package net

import "errors"

var (
	// ErrConfig reports an invalid topology or learning rate.
	ErrConfig = errors.New("invalid network configuration")

	// ErrPrecondition reports an input or target vector whose length
	// disagrees with the network. The network is left untouched.
	ErrPrecondition = errors.New("precondition violated")

	// ErrSequence reports an operation called out of forward/backward order.
	ErrSequence = errors.New("operation out of sequence")

	// ErrFormat reports serialized weights that do not fit the network.
	ErrFormat = errors.New("weight format mismatch")
)
