package app

import (
	"fmt"

	"github.com/vk/nodeflowgo/internal/codegen"
)

// coreBackends is the definitive list of code generation backends that are
// compiled into the nodeflow binary, keyed by the name used in config.
var coreBackends = map[string]codegen.Backend{
	codegen.Portable{}.Name(): codegen.Portable{},
	codegen.Host{}.Name():     codegen.Host{},
	codegen.IR{}.Name():       codegen.IR{},
}

// Backends resolves backend names, keeping their order.
func Backends(names []string) ([]codegen.Backend, error) {
	out := make([]codegen.Backend, 0, len(names))
	for _, name := range names {
		b, ok := coreBackends[name]
		if !ok {
			return nil, fmt.Errorf("unknown codegen backend %q", name)
		}
		out = append(out, b)
	}
	return out, nil
}
