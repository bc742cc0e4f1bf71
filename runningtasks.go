package coroflow

import "sync"

// runningTasks roots every started Task for the lifetime of its coroutine,
// mirroring idiokit.threado.GeneratorStream's class-level _running_streams
// set: without it, a Task with no external reference (fire-and-forget) would
// otherwise have nothing keeping its goroutine's result reachable.
type runningTaskSet struct {
	mu    sync.Mutex
	tasks map[*Task]struct{}
}

var runningTasks = &runningTaskSet{tasks: make(map[*Task]struct{})}

func (s *runningTaskSet) add(t *Task) {
	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.mu.Unlock()
}

func (s *runningTaskSet) remove(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
}

// Count reports how many tasks are currently running.
func (s *runningTaskSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
