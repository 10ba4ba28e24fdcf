package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("client_sessions")

		collection.Fields.Add(
			&core.TextField{Name: "sid", Required: true, Max: 64},
			&core.SelectField{Name: "namespace", Required: true, MaxSelect: 1, Values: []string{"vendor", "staff"}},
			&core.TextField{Name: "data", Required: true, Max: 1 << 20},
			&core.DateField{Name: "expires", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_client_sessions_sid_namespace", true, "sid, namespace", "")
		collection.AddIndex("idx_client_sessions_expires", false, "expires", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("client_sessions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
