// Package recorder writes assessment evidence to a storage backend without
// blocking the caller.
//
// Record builds an evidence.Record from an Entry, assigns it an ID and an
// input hash, and hands it to a bounded channel drained by a single worker.
// When the channel is full the record is dropped: a warning is logged, the
// drop is counted, and Record returns ErrBufferFull wrapped in a
// RecorderError. Assessment latency therefore never depends on storage.
//
// # Basic Usage
//
//	rec := recorder.New(store, &recorder.Config{
//	    AsyncBuffer:  1000,
//	    WriteTimeout: 5 * time.Second,
//	}, recorder.WithLogger(logger), recorder.WithMetrics(collector))
//	defer rec.Close()
//
//	_ = rec.Record(ctx, recorder.Entry{
//	    OperatorID: "op-17",
//	    Operations: 18,
//	    ErrorRate:  0.05,
//	    Result:     result,
//	})
//
// Close stops intake, drains everything already buffered and waits for the
// worker to finish.
package recorder
