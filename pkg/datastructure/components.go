package datastructure

// ConnectedComponents labels every vertex with the index of its undirected
// component. Labels follow vertex insertion order, starting at 0.
func (g *RoadGraph) ConnectedComponents() map[VertexID]int {
	labels := make(map[VertexID]int, len(g.vertexOrder))
	component := 0
	stack := make([]VertexID, 0, 16)

	for _, root := range g.vertexOrder {
		if _, ok := labels[root]; ok {
			continue
		}
		labels[root] = component
		stack = append(stack[:0], root)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, nb := range g.adjacency[v] {
				if _, ok := labels[nb.VertexID]; ok {
					continue
				}
				labels[nb.VertexID] = component
				stack = append(stack, nb.VertexID)
			}
		}
		component++
	}
	return labels
}

// SameComponent reports whether u and v carry the same label.
func SameComponent(labels map[VertexID]int, u, v VertexID) bool {
	lu, okU := labels[u]
	lv, okV := labels[v]
	return okU && okV && lu == lv
}
