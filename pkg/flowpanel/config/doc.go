/*
Package config loads editor configuration from YAML, JSON or TOML files
and FLOWPANEL_* environment variables.

# File Format

	connections:
	  allow_self_loops: false
	  strict: false
	catalog:
	  condition:
	    source_max: 4
	    handles:
	      "true":  {max: 1, direction: source}
	      "false": {max: 1, direction: source}
	panel:
	  show_global_properties: true
	  search_delay: 300ms
	  width: 320
	  tab: overview
	layout:
	  tablet_min: 768
	  desktop_min: 1024
	preferences:
	  backend: sqlite        # memory | sqlite | redis
	  path: ./flowpanel.db
	  redis_url: redis://localhost:6379/0
	  namespace: flowpanel
	  ttl: 720h

Every key is optional; missing keys keep the values from Default.
Catalog entries replace the default limits of the node types they name.

# Loading

	cfg, err := config.Load("flowpanel.yaml", ".env")
	if err != nil {
	    log.Fatal(err)
	}
	catalog, err := cfg.BuildCatalog()

Durations accept Go duration strings ("300ms", "1h30m") or a number of
seconds.

# Raw Values

Values gives typed, default-returning access to a decoded document and
is what the loaders use internally:

	v := config.NewValues(map[string]any{"timeout": "30s"})
	timeout := v.Duration("timeout", 10*time.Second) // 30s
*/
package config
