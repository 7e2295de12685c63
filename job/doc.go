// Package job defines the job model: definitions, the execution status
// state machine, execution records, aggregated metrics, and the handler
// registry mapping job names to work functions.
package job
