package chat

// RelatedQuery is a single follow-up suggestion.
type RelatedQuery struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"A follow-up search query, phrased as the user would type it."`
}

// RelatedQueries is the payload stored in a "related" message.
type RelatedQueries struct {
	Items []RelatedQuery `json:"items" jsonschema:"required" jsonschema_description:"Exactly three follow-up queries."`
}
