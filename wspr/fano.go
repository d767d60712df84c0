package wspr

import "container/heap"

const (
	fanoBias      = 0.45 * 2 * metricClamp
	fanoCycleLimit = 100000
	fanoStackCap   = 4000
	infoDecodedBits = 81 // 50 payload bits + 31 encoder-flush bits
	maxParityMismatch = 8 // out of 162, the post-decode consistency budget
)

// searchNode is one partial path in the sequential decoder's stack:
// a hypothesis for the first depth information bits, its running
// register state, and its cumulative Fano metric. parent forms a
// chainback list so the full bit sequence need not be copied at every
// extension.
type searchNode struct {
	parent *searchNode
	bit    byte // the bit this node adds (unused at the root)
	reg    uint32
	depth  int
	metric float64
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].metric > h[j].metric }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*searchNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// sequentialDecode implements C7: a best-first stack (Jelinek)
// sequential decoder over the rate-1/2 convolutional code, using
// metrics as branch costs. It is the stack-decoder alternative spec
// section 4.7 explicitly permits in place of a literal Fano
// threshold search; both explore the same trellis and are bounded by
// the same cycle budget.
//
// Returns the decoded 81-bit sequence and true on success, or false
// if the cycle budget is exhausted (spec's "decoder exhaustion":
// silently abandon this candidate).
func sequentialDecode(metrics [symbolCount]float64) ([infoDecodedBits]byte, bool) {
	var bits [infoDecodedBits]byte

	stack := &nodeHeap{{parent: nil, reg: 0, depth: 0, metric: 0}}
	heap.Init(stack)

	cycles := 0
	for stack.Len() > 0 {
		cycles++
		if cycles > fanoCycleLimit {
			return bits, false
		}
		if stack.Len() > fanoStackCap {
			trimHeap(stack, fanoStackCap)
		}

		node := heap.Pop(stack).(*searchNode)
		if node.depth == infoDecodedBits {
			chainback(node, &bits)
			return bits, true
		}

		p := 2 * node.depth
		posA := interleaveTable[p]
		posB := interleaveTable[p+1]

		for _, b := range [2]byte{0, 1} {
			reg := (node.reg << 1) | uint32(b)
			predA := parityOf(reg & polynomial0)
			predB := parityOf(reg & polynomial1)

			branch := signedMetric(predA, metrics[posA]) + signedMetric(predB, metrics[posB]) - fanoBias
			heap.Push(stack, &searchNode{
				parent: node,
				bit:    b,
				reg:    reg,
				depth:  node.depth + 1,
				metric: node.metric + branch,
			})
		}
	}
	return bits, false
}

// signedMetric returns the evidence in favor of predicted bit
// matching the observed soft metric: positive metric supports bit=1.
func signedMetric(predictedBit byte, metric float64) float64 {
	if predictedBit == 1 {
		return metric
	}
	return -metric
}

func chainback(node *searchNode, bits *[infoDecodedBits]byte) {
	for n := node; n != nil && n.depth > 0; n = n.parent {
		bits[n.depth-1] = n.bit
	}
}

// trimHeap keeps only the best `keep` nodes, discarding the rest. This
// bounds memory on a long, ambiguous search without abandoning it
// outright the way hitting the cycle limit does.
func trimHeap(h *nodeHeap, keep int) {
	best := make(nodeHeap, 0, keep)
	for h.Len() > 0 && len(best) < keep {
		best = append(best, heap.Pop(h).(*searchNode))
	}
	*h = best
	heap.Init(h)
}

// verifyConsistency re-encodes the decoded 81 bits and compares the
// resulting parity stream against the hard-decision sign of the
// original soft metrics, per spec section 4.7's CRC-style check.
// Returns true when within maxParityMismatch Hamming distance.
func verifyConsistency(bits [infoDecodedBits]byte, metrics [symbolCount]float64) bool {
	var info [infoBytes]byte
	for i, b := range bits {
		if b == 1 {
			info[i/8] |= 1 << uint(7-i%8)
		}
	}
	symbols := convolve(info)

	mismatches := 0
	for i := 0; i < symbolCount; i++ {
		observedParity := byte(0)
		if metrics[i] > 0 {
			observedParity = 1
		}
		expectedParity := (symbols[i] >> 1) & 1
		if observedParity != expectedParity {
			mismatches++
		}
	}
	return mismatches <= maxParityMismatch
}
