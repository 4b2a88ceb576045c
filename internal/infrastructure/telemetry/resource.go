package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// serviceVersion is stamped onto every exported signal.
const serviceVersion = "1.0.0"

// newServiceResource builds the OTEL resource shared by the trace, metric and
// log providers so all three signals carry the same service identity.
func newServiceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build service resource: %w", err)
	}
	return res, nil
}
