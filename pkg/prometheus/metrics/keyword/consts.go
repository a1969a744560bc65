package keyword

var (
	BlocksAllocated   = "refptr_blocks_allocated_total"   // num of control blocks created
	PayloadsDestroyed = "refptr_payloads_destroyed_total" // num of payloads whose strong count reached zero
	BlocksFreed       = "refptr_blocks_freed_total"       // num of control blocks retired
	Upgrades          = "refptr_upgrades_total"           // num of weak to strong upgrade attempts
	LiveBlocks        = "refptr_live_blocks"
	LivePayloads      = "refptr_live_payloads"
	DebugRequests     = "refptr_debug_http_requests_total" // num of requests served by the debug server
	DebugDurationMs   = "refptr_debug_http_duration_ms"
)
