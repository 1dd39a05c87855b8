package summarizer

// seedScore is the initial score of every node. It is not a probability and
// must stay 0.25 for reproducible rankings.
const seedScore = 0.25

// Node is a lemma vertex. Successors and Predecessors hold node indices and
// keep one entry per edge, so duplicates encode multiplicity.
type Node struct {
	Lemma        string
	Score        float64
	Successors   []int
	Predecessors []int
}

// Graph is a directed co-occurrence graph stored as a node table keyed by
// lemma.
type Graph struct {
	nodes []Node
	index map[string]int
	edges int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// ensure returns the index of the lemma's node, creating it on first use.
func (g *Graph) ensure(lemma string) int {
	if idx, ok := g.index[lemma]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{Lemma: lemma, Score: seedScore})
	g.index[lemma] = idx
	return idx
}

// AddEdge records from → to. Both endpoints are created when missing.
func (g *Graph) AddEdge(from, to string) {
	src := g.ensure(from)
	dst := g.ensure(to)
	g.nodes[src].Successors = append(g.nodes[src].Successors, dst)
	g.nodes[dst].Predecessors = append(g.nodes[dst].Predecessors, src)
	g.edges++
}

// AddNode makes sure an isolated lemma is present.
func (g *Graph) AddNode(lemma string) {
	g.ensure(lemma)
}

// Lookup returns a copy of the lemma's node.
func (g *Graph) Lookup(lemma string) (Node, bool) {
	idx, ok := g.index[lemma]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// Lemma returns the lemma stored at idx.
func (g *Graph) Lemma(idx int) string {
	return g.nodes[idx].Lemma
}

// OutDegree counts successor entries, duplicates included.
func (g *Graph) OutDegree(lemma string) int {
	idx, ok := g.index[lemma]
	if !ok {
		return 0
	}
	return len(g.nodes[idx].Successors)
}

// Len is the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount is the number of edges, duplicates included.
func (g *Graph) EdgeCount() int { return g.edges }

// BuildGraph links directly adjacent significant lemmas of each sentence
// (window of two) and returns the graph together with the considered set:
// the distinct lemmas in order of first appearance.
func BuildGraph(lemmas [][]string) (*Graph, []string) {
	g := NewGraph()
	for _, sentence := range lemmas {
		for i := 0; i+1 < len(sentence); i++ {
			g.AddEdge(sentence[i], sentence[i+1])
		}
	}

	seen := make(map[string]struct{})
	considered := make([]string, 0, len(g.nodes))
	for _, sentence := range lemmas {
		for _, lemma := range sentence {
			if _, ok := seen[lemma]; ok {
				continue
			}
			seen[lemma] = struct{}{}
			considered = append(considered, lemma)
			g.AddNode(lemma)
		}
	}
	return g, considered
}
