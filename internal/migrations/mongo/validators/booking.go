package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"user_email",
			"workshop_id",
			"session_id",
			"session_date",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"user_email": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"user_name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"workshop_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"session_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"session_date": bson.M{
				"bsonType": "date",
			},

			"payment_session_id": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"payment_intent_id": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
					"completed",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"paid",
					"failed",
					"refunded",
				},
			},

			"workshop_title": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"image_url": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
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
