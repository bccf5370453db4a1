// Package telemetry wires OpenTelemetry tracing and metrics for metadex.
//
// Export is off by default. When enabled, spans and metrics go to an OTLP
// collector over gRPC or HTTP/protobuf. Failures while creating providers
// mark the instance degraded instead of stopping the process; callers then
// get the global no-op providers.
package telemetry
