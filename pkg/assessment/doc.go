// Package assessment scores operators against the active rule set.
//
// A Service owns the current rule set behind an atomic pointer. Assess reads
// it without locking, so evaluations run concurrently with each other and
// with Reload, which parses the rule-set file and swaps the pointer only when
// the new rule set is valid and still defines both bound inputs. A failed
// reload leaves the previous rule set serving.
//
// Each assessment is traced ("assessment.evaluate"), counted in the metrics
// collector, logged at DEBUG and handed to the evidence recorder.
//
// A Watcher reloads the service when the rule-set file changes on disk. It
// watches the parent directory so that editors which replace the file by
// rename are seen, and debounces bursts of events into one reload.
package assessment
