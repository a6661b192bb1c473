package game

// DefaultTask builds the canonical symmetric payoff structure: three
// collaborative options A/B/C with decreasing risk and the guaranteed
// option Y at 50 points.
func DefaultTask(taskID int, uValue float64) (*Task, error) {
	return NewTask(taskID, uValue, []Option{
		Collaborative("A", 111, -90),
		Collaborative("B", 92, -45),
		Collaborative("C", 77, -15),
		Guaranteed("Y", 50),
	})
}

// AsymmetricTasks builds the canonical asymmetric pairing: agent 1 plays
// A/B/C/Y at u = 0.66, agent 2 plays K/L/M/Y at u = 0.75 with payoffs
// scaled so that 0.75*upside + 0.25*downside equals the guaranteed 45.
func AsymmetricTasks(taskID int) (*Task, *Task, error) {
	t1, err := NewTask(taskID, 0.66, []Option{
		Collaborative("A", 111, -90),
		Collaborative("B", 92, -45),
		Collaborative("C", 77, -15),
		Guaranteed("Y", 50),
	})
	if err != nil {
		return nil, nil, err
	}
	t2, err := NewTask(taskID, 0.75, []Option{
		Collaborative("K", 90, -90),
		Collaborative("L", 75, -45),
		Collaborative("M", 65, -15),
		Guaranteed("Y", 45),
	})
	if err != nil {
		return nil, nil, err
	}
	return t1, t2, nil
}
