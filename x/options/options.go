// Package options implements the functional-options pattern used to
// build run configurations: each Option mutates a pointer to the
// target config struct, passed as interface{} so the same Option type
// serves every config kind in this module.
package options

type Option func(cfg interface{})

// ApplyOptions runs every opt against optionsStructPtr in order.
func ApplyOptions(optionsStructPtr interface{}, opts ...Option) {
	for _, opt := range opts {
		opt(optionsStructPtr)
	}
}
