package plugin

import (
	bridgeerrors "github.com/leeforge/hostbridge/errors"
	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/metrics"
	"go.uber.org/zap"
)

// The host's list of valid node types is unreliable while a scene file is
// being read, so node registration for a plugin loaded during a read waits
// for SceneOpened.

// scheduleNodes runs task now, or parks it on the entry behind a one-shot
// SceneOpened callback when a file is being read. It reports whether the task
// was deferred. If no callback can be installed the task runs immediately.
func (r *Registry) scheduleNodes(task *PendingTask, errs *bridgeerrors.Chain) bool {
	if host.FileBusy(r.host, r.host.Version()) {
		// The task is parked before subscribing so a SceneOpened delivered
		// before the handle is stored still finds it.
		r.track(task.Plugin, func(e *Entry) {
			e.CallbackID = host.NoCallback
			e.pending = task
			e.state = StateDeferred
		})
		r.logger.Debug("installing temporary scene-opened callback", zap.String("plugin", task.Plugin))
		id, err := r.host.AddEventCallback(host.EventSceneOpened, r.handleSceneOpened)
		if err == nil && !id.IsZero() {
			stored := false
			r.track(task.Plugin, func(e *Entry) {
				if e.pending == task {
					e.CallbackID = id
					stored = true
				}
			})
			if !stored {
				r.dropCallback(task.Plugin, id)
			}
			r.metrics.RegistrationDeferred()
			return true
		}
		r.logger.Warn("could not defer node registration, registering now",
			zap.String("plugin", task.Plugin), zap.Error(err))
		if err != nil {
			errs.Add(bridgeerrors.Wrap(err, bridgeerrors.ErrorTypeInternal, "install scene-opened callback").
				WithPlugin(task.Plugin))
		}
	}

	r.track(task.Plugin, func(e *Entry) {
		e.CallbackID = host.NoCallback
		e.pending = task
	})
	errs.Add(r.registerNodes(task.Plugin))
	return false
}

func (r *Registry) handleSceneOpened(ev host.Event) {
	r.OnSceneOpened(ev.Callback)
}

// OnSceneOpened runs the pending node registration owned by callback id. An
// id no entry holds yet goes to a deferred entry still waiting for its handle;
// otherwise it is removed from the host and ignored.
func (r *Registry) OnSceneOpened(id host.CallbackID) error {
	owner, early := "", ""
	r.mu.Lock()
	for name, e := range r.entries {
		if !id.IsZero() && e.CallbackID == id {
			owner = name
			break
		}
		if e.state == StateDeferred && e.pending != nil && e.CallbackID.IsZero() && (early == "" || name < early) {
			early = name
		}
	}
	r.mu.Unlock()

	if owner == "" && early != "" {
		// scheduleNodes removes the handle once it sees the task has run.
		r.logger.Debug("scene opened before callback id was stored",
			zap.String("plugin", early), zap.String("callback", string(id)))
		owner = early
	}
	if owner == "" {
		r.logger.Warn("could not find callback id", zap.String("callback", string(id)))
		r.dropCallback("", id)
		return nil
	}
	return r.registerNodes(owner)
}

// registerNodes removes the entry's pending callback, then registers every
// declared node type the host currently reports as valid. Declared types
// that never become valid are skipped without error.
func (r *Registry) registerNodes(name string) error {
	var (
		task *PendingTask
		id   host.CallbackID
	)
	if !r.track(name, func(e *Entry) {
		task = e.pending
		id = e.CallbackID
		e.pending = nil
		e.CallbackID = host.NoCallback
		e.DependNodes = []string{}
	}) {
		r.logger.Warn("could not find callback id", zap.String("plugin", name))
		return nil
	}
	r.dropCallback(name, id)
	if task == nil {
		r.logger.Warn("no pending node registration", zap.String("plugin", name))
		return nil
	}

	errs := bridgeerrors.NewChain()
	valid, err := r.host.ValidNodeTypes()
	if err != nil {
		r.metrics.LookupFailed("validNodeTypes")
		r.logger.Error("failed to list valid node types", zap.String("plugin", name), zap.Error(err))
		errs.Add(bridgeerrors.NewLookup(name, "ls.nodeTypes", err))
	}
	validSet := make(map[string]struct{}, len(valid))
	for _, t := range valid {
		validSet[t] = struct{}{}
	}

	for _, nodeType := range task.Declared {
		if _, ok := validSet[nodeType]; !ok {
			r.metrics.Node(metrics.ActionMissing)
			r.logger.Debug("skipping node type that is not valid in the scene",
				zap.String("plugin", name), zap.String("nodeType", nodeType))
			continue
		}
		errs.Add(r.AddNode(name, nodeType))
	}

	r.track(name, func(e *Entry) { e.state = StateActive })
	return errs.Err()
}
