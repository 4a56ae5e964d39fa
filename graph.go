package wldstore

import (
	"fmt"
	"slices"
)

// StepGraph is the prerequisite graph of a workflow's steps.
// An edge A -> B means "A is a prerequisite of B" (B depends on A). Edges are
// collected from both PrerequisiteSteps and DependentSteps, so a one-sided
// link still shows up in the graph.
type StepGraph struct {
	Order []string
	Nodes map[string]*StepNode
}

// StepNode represents a step in the graph
type StepNode struct {
	StepID string
	Next   []string // dependents
	Prev   []string // prerequisites
}

// NewStepGraph builds the graph for the given steps
func NewStepGraph(steps []WorkflowStep) *StepGraph {
	g := &StepGraph{
		Nodes: make(map[string]*StepNode, len(steps)),
	}
	for _, s := range steps {
		g.AddNode(s.ID)
	}
	for _, s := range steps {
		for _, pre := range s.PrerequisiteSteps {
			g.addEdge(pre, s.ID)
		}
		for _, dep := range s.DependentSteps {
			g.addEdge(s.ID, dep)
		}
	}
	return g
}

// AddNode adds a node to the graph
func (g *StepGraph) AddNode(stepID string) {
	if _, exists := g.Nodes[stepID]; exists {
		return
	}
	g.Nodes[stepID] = &StepNode{
		StepID: stepID,
		Next:   []string{},
		Prev:   []string{},
	}
	g.Order = append(g.Order, stepID)
}

// AddEdge adds a prerequisite edge between two existing nodes
func (g *StepGraph) AddEdge(prerequisiteID, dependentID string) error {
	if _, exists := g.Nodes[prerequisiteID]; !exists {
		return fmt.Errorf("step %s not found", prerequisiteID)
	}
	if _, exists := g.Nodes[dependentID]; !exists {
		return fmt.Errorf("step %s not found", dependentID)
	}
	g.addEdge(prerequisiteID, dependentID)
	return nil
}

// addEdge records an edge, creating placeholder nodes for dangling ids.
// Placeholders are not part of Order, which is how Validate finds them.
func (g *StepGraph) addEdge(from, to string) {
	fromNode := g.node(from)
	toNode := g.node(to)
	if !slices.Contains(fromNode.Next, to) {
		fromNode.Next = append(fromNode.Next, to)
	}
	if !slices.Contains(toNode.Prev, from) {
		toNode.Prev = append(toNode.Prev, from)
	}
}

func (g *StepGraph) node(id string) *StepNode {
	n, exists := g.Nodes[id]
	if !exists {
		n = &StepNode{StepID: id, Next: []string{}, Prev: []string{}}
		g.Nodes[id] = n
	}
	return n
}

// Validate checks that every referenced step exists, no step references
// itself and the graph has no cycles
func (g *StepGraph) Validate() error {
	known := make(map[string]bool, len(g.Order))
	for _, id := range g.Order {
		known[id] = true
	}

	for _, id := range g.Order {
		node := g.Nodes[id]
		for _, next := range node.Next {
			if next == id {
				return fmt.Errorf("step %s references itself", id)
			}
			if !known[next] {
				return fmt.Errorf("step %s references unknown step %s", id, next)
			}
		}
		for _, prev := range node.Prev {
			if !known[prev] {
				return fmt.Errorf("step %s references unknown step %s", id, prev)
			}
		}
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	for _, id := range g.Order {
		if !visited[id] {
			if g.hasCycle(id, visited, recStack) {
				return fmt.Errorf("step relationships contain cycles")
			}
		}
	}

	return nil
}

// hasCycle performs DFS to detect cycles
func (g *StepGraph) hasCycle(nodeID string, visited, recStack map[string]bool) bool {
	visited[nodeID] = true
	recStack[nodeID] = true

	for _, nextID := range g.Nodes[nodeID].Next {
		if !visited[nextID] {
			if g.hasCycle(nextID, visited, recStack) {
				return true
			}
		} else if recStack[nextID] {
			return true
		}
	}

	recStack[nodeID] = false
	return false
}

// TopologicalOrder returns step ids so that every prerequisite precedes its
// dependents. Ties keep the original step order.
func (g *StepGraph) TopologicalOrder() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	order := make([]string, 0, len(g.Order))

	var visit func(string)
	visit = func(nodeID string) {
		if visited[nodeID] {
			return
		}
		visited[nodeID] = true
		for _, prev := range g.Nodes[nodeID].Prev {
			visit(prev)
		}
		order = append(order, nodeID)
	}

	for _, id := range g.Order {
		visit(id)
	}

	return order, nil
}

// Roots returns steps without prerequisites
func (g *StepGraph) Roots() []string {
	var roots []string
	for _, id := range g.Order {
		if len(g.Nodes[id].Prev) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Asymmetry describes a relationship recorded on only one side
type Asymmetry struct {
	PrerequisiteID string
	DependentID    string
	MissingOn      string // step id whose list lacks the mirror entry
}

// FindAsymmetries reports relationships that break the mirroring convention
func FindAsymmetries(steps []WorkflowStep) []Asymmetry {
	byID := make(map[string]*WorkflowStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}

	var out []Asymmetry
	for _, s := range steps {
		for _, pre := range s.PrerequisiteSteps {
			if other, ok := byID[pre]; ok && !slices.Contains(other.DependentSteps, s.ID) {
				out = append(out, Asymmetry{PrerequisiteID: pre, DependentID: s.ID, MissingOn: pre})
			}
		}
		for _, dep := range s.DependentSteps {
			if other, ok := byID[dep]; ok && !slices.Contains(other.PrerequisiteSteps, s.ID) {
				out = append(out, Asymmetry{PrerequisiteID: s.ID, DependentID: dep, MissingOn: dep})
			}
		}
	}
	return out
}

// LinkSteps records prerequisiteID as a prerequisite of dependentID on both steps
func LinkSteps(steps []WorkflowStep, prerequisiteID, dependentID string) error {
	if prerequisiteID == dependentID {
		return fmt.Errorf("step %s cannot depend on itself", prerequisiteID)
	}
	pre, dep := findStep(steps, prerequisiteID), findStep(steps, dependentID)
	if pre == nil {
		return fmt.Errorf("step %s not found", prerequisiteID)
	}
	if dep == nil {
		return fmt.Errorf("step %s not found", dependentID)
	}
	if !slices.Contains(pre.DependentSteps, dependentID) {
		pre.DependentSteps = append(pre.DependentSteps, dependentID)
	}
	if !slices.Contains(dep.PrerequisiteSteps, prerequisiteID) {
		dep.PrerequisiteSteps = append(dep.PrerequisiteSteps, prerequisiteID)
	}
	return nil
}

// UnlinkSteps removes the relationship from both steps
func UnlinkSteps(steps []WorkflowStep, prerequisiteID, dependentID string) {
	if pre := findStep(steps, prerequisiteID); pre != nil {
		pre.DependentSteps = slices.DeleteFunc(pre.DependentSteps, func(id string) bool { return id == dependentID })
	}
	if dep := findStep(steps, dependentID); dep != nil {
		dep.PrerequisiteSteps = slices.DeleteFunc(dep.PrerequisiteSteps, func(id string) bool { return id == prerequisiteID })
	}
}

// SymmetrizeSteps adds every missing mirror entry and returns how many were added
func SymmetrizeSteps(steps []WorkflowStep) int {
	added := 0
	for _, a := range FindAsymmetries(steps) {
		before := countLinks(steps)
		if err := LinkSteps(steps, a.PrerequisiteID, a.DependentID); err == nil {
			added += countLinks(steps) - before
		}
	}
	return added
}

func countLinks(steps []WorkflowStep) int {
	n := 0
	for _, s := range steps {
		n += len(s.PrerequisiteSteps) + len(s.DependentSteps)
	}
	return n
}

func findStep(steps []WorkflowStep, id string) *WorkflowStep {
	for i := range steps {
		if steps[i].ID == id {
			return &steps[i]
		}
	}
	return nil
}
