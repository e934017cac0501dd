package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
const (
	fieldUserID    = "user_id"
	fieldEmail     = "email"
	fieldRole      = "role"
	fieldUpdatedAt = "updated_at"
	fieldTTL       = "ttl"

	indexEmail = "email-index"
)
