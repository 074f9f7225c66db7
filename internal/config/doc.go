// Package config loads route tables from routes files for navctl.
//
// A routes file is YAML (routes.yaml, routes.yml) or JSON (routes.json):
//
//	routes:
//	  - path: /
//	    view: home
//	  - path: /users/:id
//	    view: user
//	    meta:
//	      title: User
//	fallback:
//	  view: notfound
//	rootSelector: "#app"
//	restoreScroll: true
//	debug: true
//	serve:
//	  addr: localhost:8080
//	  metrics: true
//	redis:
//	  addr: localhost:6379
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := router.New(cfg.RouterConfig())
package config
