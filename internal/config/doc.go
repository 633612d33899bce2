// Package config loads wstrim settings.
//
// Settings are read from a user file and a workspace file, each either TOML
// or YAML, deep-merged with the workspace winning, and finally overridden by
// the environment:
//
//	~/.config/wstrim/settings.toml   (or settings.yaml)
//	<workspace>/.wstrim.toml         (or .wstrim.yaml)
//	WSTRIM_OWNER_PATTERNS
//
// A Store holds the current Settings and can watch the files so edits apply
// without a restart:
//
//	store := config.NewStore(config.WithPaths(config.DefaultPaths(dir)...))
//	if err := store.Load(); err != nil {
//		return err
//	}
//	sub := store.OnChange(func(prev, next config.Settings) { ... })
//	defer sub.Unsubscribe()
//	go store.Watch(ctx)
package config
