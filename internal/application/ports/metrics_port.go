package ports

// WorkflowMetrics recibe el resultado de cada flujo de varios pasos y de cada compensación.
type WorkflowMetrics interface {
	WorkflowFinished(workflow string, err error)
	CompensationRan(workflow, step string, err error)
}

// NopMetrics descarta todo; útil en tests y cuando /metrics está deshabilitado.
type NopMetrics struct{}

func (NopMetrics) WorkflowFinished(string, error)        {}
func (NopMetrics) CompensationRan(string, string, error) {}
