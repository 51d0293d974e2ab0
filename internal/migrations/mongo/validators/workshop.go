package validators

import "go.mongodb.org/mongo-driver/bson"

var WorkshopValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"instructor",
			"price_cents",
			"start_date",
			"recurring_time",
			"recurrence",
			"max_spots",
			"sessions",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"instructor": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"price_cents": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"duration": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"recurring_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):([0-5][0-9])$",
			},

			"recurrence": bson.M{
				"bsonType": "string",
				"enum": []string{
					"weekly",
					"biweekly",
					"monthly",
				},
			},

			"max_spots": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"window_months": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  12,
			},

			"image_url": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"sessions": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"session_id", "session_date", "booked_spots"},
					"properties": bson.M{
						"session_id": bson.M{
							"bsonType":  "string",
							"minLength": 36,
							"maxLength": 36,
						},
						"session_date": bson.M{
							"bsonType": "date",
						},
						"booked_spots": bson.M{
							"bsonType": "int",
							"minimum":  0,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
