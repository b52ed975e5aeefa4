package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func unique(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

func plain(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys}
}

// indexes backs every uniqueness rule with a unique index so violations surface as
// duplicate key errors, and adds lookups for the foreign keys the cascade filters on.
var indexes = map[string][]mongo.IndexModel{
	collAdmins: {
		unique(bson.D{{Key: "email", Value: 1}}),
		unique(bson.D{{Key: "schoolName", Value: 1}}),
	},
	collClasses: {
		unique(bson.D{{Key: "school", Value: 1}, {Key: "name", Value: 1}}),
	},
	collSubjects: {
		unique(bson.D{{Key: "school", Value: 1}, {Key: "code", Value: 1}}),
		plain(bson.D{{Key: "class", Value: 1}}),
		plain(bson.D{{Key: "teacher", Value: 1}}),
	},
	collTeachers: {
		unique(bson.D{{Key: "email", Value: 1}}),
		plain(bson.D{{Key: "school", Value: 1}}),
		plain(bson.D{{Key: "class", Value: 1}}),
		plain(bson.D{{Key: "teachSubject", Value: 1}}),
	},
	collStudents: {
		unique(bson.D{{Key: "school", Value: 1}, {Key: "class", Value: 1}, {Key: "rollNum", Value: 1}}),
		plain(bson.D{{Key: "class", Value: 1}}),
		plain(bson.D{{Key: "parent", Value: 1}}),
		plain(bson.D{{Key: "rollNum", Value: 1}, {Key: "name", Value: 1}}),
	},
	collParents: {
		unique(bson.D{{Key: "email", Value: 1}}),
		plain(bson.D{{Key: "school", Value: 1}}),
		plain(bson.D{{Key: "children", Value: 1}}),
	},
	collFees: {
		plain(bson.D{{Key: "student", Value: 1}}),
		plain(bson.D{{Key: "class", Value: 1}}),
		plain(bson.D{{Key: "school", Value: 1}, {Key: "academicYear", Value: 1}}),
	},
	collBooks: {
		unique(bson.D{{Key: "isbn", Value: 1}}),
		plain(bson.D{{Key: "school", Value: 1}, {Key: "title", Value: 1}}),
	},
	collBorrows: {
		plain(bson.D{{Key: "book", Value: 1}, {Key: "status", Value: 1}}),
		plain(bson.D{{Key: "borrower.type", Value: 1}, {Key: "borrower.id", Value: 1}, {Key: "status", Value: 1}}),
		plain(bson.D{{Key: "school", Value: 1}, {Key: "status", Value: 1}, {Key: "dueDate", Value: 1}}),
	},
	collAssignments: {
		plain(bson.D{{Key: "class", Value: 1}, {Key: "dueDate", Value: -1}}),
		plain(bson.D{{Key: "teacher", Value: 1}}),
		plain(bson.D{{Key: "subject", Value: 1}}),
	},
	collMessages: {
		plain(bson.D{{Key: "recipient.type", Value: 1}, {Key: "recipient.id", Value: 1}, {Key: "isRead", Value: 1}}),
		plain(bson.D{{Key: "sender.type", Value: 1}, {Key: "sender.id", Value: 1}}),
	},
	collEvents: {
		plain(bson.D{{Key: "school", Value: 1}, {Key: "startDate", Value: 1}}),
	},
	collNotices: {
		plain(bson.D{{Key: "school", Value: 1}, {Key: "date", Value: -1}}),
	},
	collComplaints: {
		plain(bson.D{{Key: "school", Value: 1}}),
	},
	collTimetables: {
		unique(bson.D{{Key: "class", Value: 1}, {Key: "academicYear", Value: 1}, {Key: "term", Value: 1}}),
		plain(bson.D{{Key: "schedule.periods.teacher", Value: 1}}),
	},
}

// EnsureIndexes creates missing indexes. Existing identical indexes are left untouched.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return mapMongoError(fmt.Sprintf("create %s indexes", name), err)
		}
	}
	return nil
}
