package ddns

// RunLoop exposes the loop behind RunDaemon so tests can drive it with their own ticks.
var RunLoop = runLoop
