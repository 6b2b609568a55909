// Package services implements the driving port interfaces.
// Services contain the core business logic: the cascading search tiers,
// full-range resolution with fail-closed validation, section editing, and
// batch apply orchestration. They call out to driven ports (the document
// host, session store) and never touch adapter types directly.
package services
