package ppoprf

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	seedLen  = 32
	ggmDepth = 8 // los epochs son uint8
)

var ggmLabel = []byte("STAR-PPOPRF-GGM-v1")

// ErrPunctured se devuelve cuando el epoch ya fue perforado de la clave.
var ErrPunctured = errors.New("ppoprf: epoch punctured")

// ggmNode cubre toda hoja cuyos primeros depth bits son prefix.
type ggmNode struct {
	prefix uint8
	depth  uint8
	seed   []byte
}

func (n ggmNode) covers(x uint8) bool {
	if n.depth == 0 {
		return true
	}
	return x>>(ggmDepth-n.depth) == n.prefix
}

// pprf es un PRF perforable en árbol GGM sobre el dominio uint8. eval no muta el
// conjunto de nodos; las evaluaciones concurrentes son seguras mientras puncture
// esté serializado respecto de ellas.
type pprf struct {
	nodes []ggmNode
}

func newPPRF(rnd io.Reader) (*pprf, error) {
	seed := make([]byte, seedLen)
	if _, err := io.ReadFull(rnd, seed); err != nil {
		return nil, fmt.Errorf("ppoprf: read root seed: %w", err)
	}
	return &pprf{nodes: []ggmNode{{seed: seed}}}, nil
}

func (k *pprf) find(x uint8) int {
	for i, n := range k.nodes {
		if n.covers(x) {
			return i
		}
	}
	return -1
}

// eval devuelve una copia de la semilla de la hoja x. El caller la borra.
func (k *pprf) eval(x uint8) ([]byte, error) {
	i := k.find(x)
	if i < 0 {
		return nil, ErrPunctured
	}
	n := k.nodes[i]
	cur := append([]byte(nil), n.seed...)
	for d := n.depth; d < ggmDepth; d++ {
		next, err := ggmChild(cur, bitAt(x, d))
		wipe(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// puncture reemplaza el nodo que cubre x por el co-path de x debajo de él.
func (k *pprf) puncture(x uint8) error {
	i := k.find(x)
	if i < 0 {
		return ErrPunctured
	}
	n := k.nodes[i]
	k.nodes = append(k.nodes[:i], k.nodes[i+1:]...)

	cur, prefix := n.seed, n.prefix
	for d := n.depth; d < ggmDepth; d++ {
		bit := bitAt(x, d)
		onPath, err := ggmChild(cur, bit)
		if err != nil {
			return err
		}
		sibling, err := ggmChild(cur, bit^1)
		if err != nil {
			return err
		}
		wipe(cur)
		k.nodes = append(k.nodes, ggmNode{prefix: prefix<<1 | (bit ^ 1), depth: d + 1, seed: sibling})
		cur, prefix = onPath, prefix<<1|bit
	}
	wipe(cur)
	return nil
}

func (k *pprf) destroy() {
	for _, n := range k.nodes {
		wipe(n.seed)
	}
	k.nodes = nil
}

func ggmChild(seed []byte, bit uint8) ([]byte, error) {
	info := append(append([]byte(nil), ggmLabel...), bit)
	out := make([]byte, seedLen)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, seed, info), out); err != nil {
		return nil, fmt.Errorf("ppoprf: expand node: %w", err)
	}
	return out, nil
}

func bitAt(x, depth uint8) uint8 {
	return (x >> (ggmDepth - 1 - depth)) & 1
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
