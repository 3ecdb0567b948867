// Package logger provides structured logging for etlkit pipelines
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Pipeline runs log
// under stable field keys (pipeline, run_id, records_read, ...) so runs
// can be correlated across components.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("run completed", logger.Fields(logger.FieldRecords, 42))
package logger
