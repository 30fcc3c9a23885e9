package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "bk7p2r9w4t6y1u3",
			"name": "bookings",
			"type": "base",
			"system": false,
			"fields": [
				{
					"autogeneratePattern": "[a-z0-9]{15}",
					"hidden": false,
					"id": "text3208210256",
					"max": 15,
					"min": 15,
					"name": "id",
					"pattern": "^[a-z0-9]+$",
					"presentable": false,
					"primaryKey": true,
					"required": true,
					"system": true,
					"type": "text"
				},
				{
					"cascadeDelete": false,
					"collectionId": "b1l9zq2k7x4m3n8",
					"hidden": false,
					"id": "relation3065852031",
					"maxSelect": 1,
					"minSelect": 0,
					"name": "listing",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "relation"
				},
				{
					"cascadeDelete": false,
					"collectionId": "_pb_users_auth_",
					"hidden": false,
					"id": "relation2809058197",
					"maxSelect": 1,
					"minSelect": 0,
					"name": "user",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "relation"
				},
				{
					"hidden": false,
					"id": "number2246930910",
					"max": 365,
					"min": 1,
					"name": "duration_days",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "date1219621782",
					"max": "",
					"min": "",
					"name": "desired_start_date",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date2675529103",
					"max": "",
					"min": "",
					"name": "start_date",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date2220669758",
					"max": "",
					"min": "",
					"name": "end_date",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "number3156280484",
					"max": 50,
					"min": 1,
					"name": "guests",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "select2063623452",
					"maxSelect": 1,
					"name": "status",
					"presentable": true,
					"required": true,
					"system": false,
					"type": "select",
					"values": [
						"requested",
						"approved",
						"awaiting_payment",
						"paid",
						"checked_in",
						"released",
						"rejected",
						"cancelled",
						"expired"
					]
				},
				{
					"hidden": false,
					"id": "text3846192033",
					"max": 1000,
					"min": 0,
					"name": "customer_note",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "text1978916008",
					"max": 1000,
					"min": 0,
					"name": "owner_note",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "date3994701531",
					"max": "",
					"min": "",
					"name": "approved_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date1426546340",
					"max": "",
					"min": "",
					"name": "rejected_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date2126541373",
					"max": "",
					"min": "",
					"name": "expired_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date3144380399",
					"max": "",
					"min": "",
					"name": "cancelled_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "number1912072330",
					"max": null,
					"min": 0,
					"name": "price_per_night",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number2155894432",
					"max": null,
					"min": 0,
					"name": "total_amount",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number3257917790",
					"max": null,
					"min": 0,
					"name": "deposit_amount",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number1148212600",
					"max": null,
					"min": 0,
					"name": "platform_commission",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number2462348802",
					"max": null,
					"min": 0,
					"name": "amount_to_pay",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number3474079756",
					"max": null,
					"min": 0,
					"name": "escrow_amount",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": true,
					"id": "text2191767451",
					"max": 100,
					"min": 0,
					"name": "key_code_hash",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "date3233480101",
					"max": "",
					"min": "",
					"name": "key_code_expires_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "date1057440463",
					"max": "",
					"min": "",
					"name": "checked_in_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "number2733620193",
					"max": null,
					"min": 0,
					"name": "payout_amount",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "select1196242183",
					"maxSelect": 1,
					"name": "payout_status",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "select",
					"values": ["unpaid", "paid"]
				},
				{
					"hidden": false,
					"id": "text3725765462",
					"max": 200,
					"min": 0,
					"name": "payout_reference",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "date2987339953",
					"max": "",
					"min": "",
					"name": "released_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"hidden": false,
					"id": "autodate2990389176",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				},
				{
					"hidden": false,
					"id": "autodate3332085495",
					"name": "updated",
					"onCreate": true,
					"onUpdate": true,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"indexes": [
				"CREATE INDEX ` + "`idx_bookings_listing_status`" + ` ON ` + "`bookings`" + ` (` + "`listing`" + `, ` + "`status`" + `)",
				"CREATE INDEX ` + "`idx_bookings_user`" + ` ON ` + "`bookings`" + ` (` + "`user`" + `)",
				"CREATE INDEX ` + "`idx_bookings_dates`" + ` ON ` + "`bookings`" + ` (` + "`start_date`" + `, ` + "`end_date`" + `)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bk7p2r9w4t6y1u3")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
