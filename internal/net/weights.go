package net

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Weight file constants.
const (
	WeightsMagic   = 0x57504C4D // "MLPW" in little-endian
	WeightsVersion = 1

	maxLayers = 1 << 16
)

// WeightsHeader describes a serialized weight file.
type WeightsHeader struct {
	Version  uint32
	Topology []int
	Count    uint64
}

// MarshalBinary encodes the topology header followed by every weight as a
// little-endian float64, in Params order.
func (n *Network) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary loads weights produced by MarshalBinary. The header must
// match this network's topology; on any error the network is unchanged.
func (n *Network) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	if err := n.Decode(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrFormat, r.Len())
	}
	return nil
}

// Encode writes the network weights to w.
func (n *Network) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	header := []uint32{WeightsMagic, WeightsVersion, uint32(len(n.topology))}
	for _, width := range n.topology {
		header = append(header, uint32(width))
	}
	if err := binary.Write(bw, le, header); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := binary.Write(bw, le, uint64(n.ParamCount())); err != nil {
		return fmt.Errorf("failed to encode weight count: %w", err)
	}
	if err := binary.Write(bw, le, n.Params()); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return bw.Flush()
}

// Decode reads weights written by Encode into the network.
func (n *Network) Decode(r io.Reader) error {
	header, err := ReadWeightsHeader(r)
	if err != nil {
		return err
	}
	if !equalInts(header.Topology, n.topology) {
		return fmt.Errorf("%w: file topology %v, network topology %v", ErrFormat, header.Topology, n.topology)
	}
	if header.Count != uint64(n.ParamCount()) {
		return fmt.Errorf("%w: file has %d weights, network has %d", ErrFormat, header.Count, n.ParamCount())
	}

	params := make([]float64, header.Count)
	if err := binary.Read(r, binary.LittleEndian, params); err != nil {
		return fmt.Errorf("%w: reading weights: %v", ErrFormat, err)
	}
	for i, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: weight %d is %v", ErrFormat, i, p)
		}
	}
	return n.SetParams(params)
}

// ReadWeightsHeader reads and checks the header of a weight file.
func ReadWeightsHeader(r io.Reader) (WeightsHeader, error) {
	le := binary.LittleEndian
	var fixed [3]uint32
	if err := binary.Read(r, le, &fixed); err != nil {
		return WeightsHeader{}, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}
	if fixed[0] != WeightsMagic {
		return WeightsHeader{}, fmt.Errorf("%w: bad magic %#x", ErrFormat, fixed[0])
	}
	if fixed[1] != WeightsVersion {
		return WeightsHeader{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, fixed[1])
	}
	if fixed[2] < 2 || fixed[2] > maxLayers {
		return WeightsHeader{}, fmt.Errorf("%w: bad layer count %d", ErrFormat, fixed[2])
	}

	widths := make([]uint32, fixed[2])
	if err := binary.Read(r, le, widths); err != nil {
		return WeightsHeader{}, fmt.Errorf("%w: reading topology: %v", ErrFormat, err)
	}
	h := WeightsHeader{Version: fixed[1], Topology: make([]int, len(widths))}
	for i, w := range widths {
		h.Topology[i] = int(w)
	}
	if err := binary.Read(r, le, &h.Count); err != nil {
		return WeightsHeader{}, fmt.Errorf("%w: reading weight count: %v", ErrFormat, err)
	}
	return h, nil
}

// Save writes the network weights to a file.
func (n *Network) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := n.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadFile loads weights from a file into an existing network.
func (n *Network) LoadFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return n.UnmarshalBinary(data)
}

// Load builds a network from the topology recorded in a weight file and
// loads its weights.
func Load(filename string, learningRate float64, opts ...Option) (*Network, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	r := bytes.NewReader(data)
	header, err := ReadWeightsHeader(r)
	if err != nil {
		return nil, err
	}
	if want := paramCount(header.Topology); header.Count != want || uint64(r.Len()) != 8*want {
		return nil, fmt.Errorf("%w: topology %v needs %d weights, file declares %d in %d bytes",
			ErrFormat, header.Topology, want, header.Count, r.Len())
	}
	n, err := New(header.Topology, learningRate, opts...)
	if err != nil {
		if errors.Is(err, ErrConfig) {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return nil, err
	}
	if err := n.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return n, nil
}

// paramCount returns the weight count of a topology, bias weights included.
func paramCount(topology []int) uint64 {
	var total uint64
	for i := 0; i+1 < len(topology); i++ {
		total += uint64(topology[i]+1) * uint64(topology[i+1])
	}
	return total
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
