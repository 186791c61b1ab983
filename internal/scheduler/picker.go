package scheduler

import (
	"fmt"
	"math/rand"
	"sync"
)

// Picker chooses one caregiver out of a non-empty eligible set. Any member
// may be returned.
type Picker interface {
	Pick(eligible []string) string
}

// RandomPicker picks uniformly at random, spreading load across caregivers.
type RandomPicker struct{}

func (RandomPicker) Pick(eligible []string) string {
	return eligible[rand.Intn(len(eligible))]
}

// RoundRobinPicker cycles through positions of the (sorted) eligible set.
type RoundRobinPicker struct {
	mu   sync.Mutex
	next int
}

func (p *RoundRobinPicker) Pick(eligible []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := eligible[p.next%len(eligible)]
	p.next++
	return name
}

// PickerByName maps a configuration value to a Picker.
func PickerByName(name string) (Picker, error) {
	switch name {
	case "", "random":
		return RandomPicker{}, nil
	case "round-robin":
		return &RoundRobinPicker{}, nil
	}
	return nil, fmt.Errorf("unknown caregiver picker %q", name)
}
