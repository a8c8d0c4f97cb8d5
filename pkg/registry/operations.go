package registry

import (
	"github.com/merchflow/merchflow/pkg/catalog"
	conditionop "github.com/merchflow/merchflow/pkg/operations/condition"
	"github.com/merchflow/merchflow/pkg/operations/data"
	"github.com/merchflow/merchflow/pkg/operations/executecode"
	"github.com/merchflow/merchflow/pkg/operations/httprequest"
	logop "github.com/merchflow/merchflow/pkg/operations/log"
	"github.com/merchflow/merchflow/pkg/operations/notification"
	"github.com/merchflow/merchflow/pkg/operations/sendemail"
	"github.com/merchflow/merchflow/pkg/operations/sleep"
	"github.com/merchflow/merchflow/pkg/operations/transform"
	"github.com/merchflow/merchflow/pkg/operations/triggerflow"
	"github.com/merchflow/merchflow/pkg/operations/triggerworkflow"
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/script"
)

// Dependencies are the shared services operation factories close over.
type Dependencies struct {
	Index    *catalog.Index
	Backend  protocol.Backend
	Executor *script.Executor
	Runner   protocol.FlowRunner
}

// RegisterDefaultOperations wires every built-in operation type into the
// registry.
func RegisterDefaultOperations(r *Registry, deps Dependencies) {
	r.Register(data.NewReadFactory(deps.Index, deps.Backend))
	r.Register(data.NewCreateFactory(deps.Index, deps.Backend))
	r.Register(data.NewUpdateFactory(deps.Index, deps.Backend))
	r.Register(data.NewDeleteFactory(deps.Index, deps.Backend))
	r.Register(data.NewBulkUpdateFactory(deps.Index, deps.Backend))
	r.Register(logop.NewFactory())
	r.Register(conditionop.NewFactory())
	r.Register(httprequest.NewFactory())
	r.Register(transform.NewFactory())
	r.Register(sendemail.NewFactory(deps.Backend))
	r.Register(sleep.NewFactory())
	r.Register(notification.NewFactory(deps.Backend))
	r.Register(executecode.NewFactory(deps.Executor))
	r.Register(triggerworkflow.NewFactory(deps.Backend))
	r.Register(triggerflow.NewFactory(deps.Runner))
}
