package folder

import (
	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/types"
)

const viewsKey = "views"

func viewsRoot(root crdt.Map) crdt.Map {
	return root.GetOrCreateMap(viewsKey)
}

func insertView(views crdt.Map, v View) {
	if v.CreatedAt == 0 {
		v.CreatedAt = types.Now()
	}
	if v.LastEditedTime == 0 {
		v.LastEditedTime = types.Now()
	}
	sub := views.GetOrCreateMap(string(v.ID))
	writeViewToMap(anymap.New(sub), v)
}

func getView(views crdt.Map, id types.ViewID) (View, bool) {
	sub, ok := views.GetMap(string(id))
	if !ok {
		return View{}, false
	}
	return viewFromMap(anymap.New(sub)), true
}

// updateView applies f to the stored view and writes the result back,
// bumping LastEditedTime. Reports whether id existed.
func updateView(views crdt.Map, id types.ViewID, f func(*View)) (View, bool) {
	v, ok := getView(views, id)
	if !ok {
		return View{}, false
	}
	f(&v)
	v.LastEditedTime = types.Now()
	insertView(views, v)
	return v, true
}

func deleteView(views crdt.Map, id types.ViewID) {
	views.Delete(string(id))
}

func getAllViews(views crdt.Map) []View {
	out := make([]View, 0, views.Len())
	for _, k := range views.Keys() {
		sub, ok := views.GetMap(k)
		if !ok {
			continue
		}
		out = append(out, viewFromMap(anymap.New(sub)))
	}
	return out
}
