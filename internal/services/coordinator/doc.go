// Package coordinator drives the periodic poll cycle: discover items from
// every known peer, deduplicate against the persisted seen-set, persist
// what is new, and execute approved payments with bounded retry. Scheduling
// of the next cycle is delegated to the platform's background-task
// capability.
package coordinator
