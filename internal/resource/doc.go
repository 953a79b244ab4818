// Package resource implements the Controller that governs how a pipeline
// spends time and parallelism.
//
// The Controller manages two resource types:
//
//   - Concurrency: limit how many stages run at once across concurrent groups
//   - Frames: pace repeated pipeline runs with a token bucket
//
// # Architecture
//
//	┌───────────────────────────────────────────┐
//	│                Controller                 │
//	├─────────────────────┬─────────────────────┤
//	│  Stage Slots (sem)  │  Frame Limiter      │
//	│                     │  (token bucket)     │
//	├─────────────────────┼─────────────────────┤
//	│  AcquireStage       │  WaitFrame          │
//	│  TryAcquireStage    │  TryFrame           │
//	│  ReleaseStage       │                     │
//	└─────────────────────┴─────────────────────┘
//
// # Stage Slots
//
//	rc := resource.NewController(resource.Config{MaxConcurrentStages: 4})
//
//	if err := rc.AcquireStage(ctx); err != nil {
//	    return err // context cancelled
//	}
//	defer rc.ReleaseStage()
//
// # Frame Pacing
//
// FramesPerSecond <= 0 disables pacing; WaitFrame then returns immediately:
//
//	rc := resource.NewController(resource.Config{FramesPerSecond: 60})
//	for {
//	    if err := rc.WaitFrame(ctx); err != nil {
//	        return err
//	    }
//	    // run one frame
//	}
//
// A nil *Controller imposes no limits.
package resource
