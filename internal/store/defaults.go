package store

// DefaultTables seeds the tables a fresh server starts with.
func DefaultTables() []TableRecord {
	return []TableRecord{
		{Key: "green-1", Name: "Green Felt 1", MaxPlayers: 6, MinBet: 10, InWait: true},
		{Key: "green-2", Name: "Green Felt 2", MaxPlayers: 9, MinBet: 50, InWait: true},
	}
}
