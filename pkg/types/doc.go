// Package types provides shared type definitions for the MediaSense media library.
//
// This package defines the domain types used across storage, ingestion,
// ranking and the transport layers.
//
// # Core Types
//
// Media represents one uploaded asset owned by a single user, together with
// its AI-generated metadata:
//
//	media := &types.Media{
//	    OwnerID:      "user-1",
//	    OriginalName: "sunset.jpg",
//	    FileType:     types.FileTypeImage,
//	    Status:       types.StatusReady,
//	    Description:  "A red sunset over the ocean",
//	    Tags:         []string{"sunset", "ocean"},
//	}
//
// # Lifecycle
//
// Media moves through uploading -> analyzing -> ready | error. Only ready
// media takes part in ranking:
//
//	if media.Status.Searchable() {
//	    // eligible candidate
//	}
//
// # Search Results
//
// ScoredMedia embeds a Media and adds the four derived ranking scores.
// Scores are computed per request and never persisted:
//
//	result := types.ScoredMedia{
//	    Media:         *media,
//	    SemanticScore: 0.91,
//	    KeywordScore:  0.5,
//	    RecencyScore:  0.98,
//	    FinalScore:    0.7,
//	}
package types
