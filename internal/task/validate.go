package task

import "fmt"

// Validate builds the command for every descriptor without running anything
// and returns the first failure, labelled with the task it belongs to.
func Validate(b CommandBuilder, tasks []Descriptor) error {
	for _, d := range tasks {
		if _, err := b.Command(d); err != nil {
			return fmt.Errorf("%s: %w", d.Label(), err)
		}
	}
	return nil
}
