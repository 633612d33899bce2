// Package hook delivers document lifecycle events to registered listeners.
//
// A host publishes five events per document: opened, cloned, about to save,
// saved, and closed. Listeners implement Listener directly or wrap plain
// functions with Funcs:
//
//	d := hook.NewDispatcher(logger)
//	d.Register("trim", trimmer, hook.WithPriority(hook.PriorityHigh))
//	d.Register("audit", hook.Funcs{
//	    PostSave: func(doc hook.Document) error {
//	        log.Printf("saved %s", doc.ID())
//	        return nil
//	    },
//	})
//
//	if err := d.Dispatch(hook.TopicPreSave, doc); err != nil {
//	    // one or more listeners failed; the rest still ran
//	}
//
// Delivery is synchronous, in priority order (highest first, then
// registration order). A panicking listener is recovered and reported as a
// *PanicError.
package hook
