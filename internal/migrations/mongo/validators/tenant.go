package validators

import "go.mongodb.org/mongo-driver/bson"

var openingHours = bson.M{
	"bsonType": "object",
	"required": []string{"open", "close"},
	"properties": bson.M{
		"open":  bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
		"close": bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
	},
}

var TenantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"time_zone",
			"capacity_per_slot",
			"booking_horizon_days",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"time_zone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"capacity_per_slot": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1000,
			},

			"booking_horizon_days": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  3650,
			},

			"weekly_hours": bson.M{
				"bsonType":             "object",
				"additionalProperties": openingHours,
			},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}
