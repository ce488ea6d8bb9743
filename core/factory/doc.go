// Package factory provides a small generic registry used to instantiate
// pluggable modules (metrics sinks, run stores) from configuration. A module
// is described by a type string and a map of raw settings; its factory
// decodes the settings into a typed struct and returns the implementation.
//
//	reg := factory.NewRegistry[Store]()
//	reg.Register("jsonl", func(conf map[string]any) (Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return OpenJSONL(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "runs.jsonl"}})
package factory
