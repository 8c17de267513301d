// Package logging provides structured logging using uber/zap.
//
// Production mode writes JSON, development mode writes coloured console
// output. Every component receives a named child logger:
//
//	logger := logging.NewFromLevel("info", false)
//	orch := provision.NewOrchestrator(rt, rt, extractor, logger.Component("provision"))
package logging
