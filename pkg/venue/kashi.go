package venue

// KashiDefinition is the built-in venue used when no venue file is configured.
func KashiDefinition() Definition {
	return Definition{
		Name: "Kashi Vishwanath",
		Roles: Roles{
			Security: "security",
			Waiting:  "waiting",
			Sanctum:  "sanctum",
			Exit:     "exit",
		},
		Waypoints: []Waypoint{
			{ID: "gate-1", Position: Point{50, 350}, Label: "Gate 1: Main Corridor", Category: CategoryGate, Congestion: CongestionHigh, Description: "The grand entrance from the river side."},
			{ID: "gate-2", Position: Point{350, 350}, Label: "Gate 2: Secondary Entry", Category: CategoryGate, Congestion: CongestionLow, Description: "Faster entry for local pilgrims."},
			{ID: "gate-3", Position: Point{200, 380}, Label: "Gate 3: Surge Control", Category: CategoryGate, Congestion: CongestionModerate, Description: "Opened during peak festival hours."},
			{ID: "gate-vip", Position: Point{20, 200}, Label: "VIP Entry Gate", Category: CategoryGate, Congestion: CongestionLow, Description: "Priority access for special permits."},
			{ID: "security", Position: Point{100, 300}, Label: "Security Check", Category: CategorySecurity, Congestion: CongestionHigh},
			{ID: "waiting", Position: Point{200, 250}, Label: "Waiting Area", Category: CategoryQueue, Congestion: CongestionModerate},
			{ID: "sanctum", Position: Point{200, 80}, Label: "Garbhagriha (Sanctum)", Category: CategorySanctum, Congestion: CongestionHigh, Description: "The sacred heart of the temple."},
			{ID: "donation", Position: Point{300, 150}, Label: "Donation Area", Category: CategoryDonation, Congestion: CongestionLow},
			{ID: "exit", Position: Point{380, 100}, Label: "Exit Gate", Category: CategoryGate, Congestion: CongestionLow},
			{ID: "sos-1", Position: Point{50, 100}, Label: "Medical Point", Category: CategoryEmergency, Congestion: CongestionLow},
			{ID: "water-1", Position: Point{320, 250}, Label: "Drinking Water", Category: CategoryUtility, Congestion: CongestionLow},
			{ID: "rest-1", Position: Point{80, 180}, Label: "Rest Zone", Category: CategoryUtility, Congestion: CongestionLow},
			{
				ID: "heritage-1", Position: Point{150, 150}, Label: "Ancient Pillar", Category: CategoryHeritage, Congestion: CongestionLow,
				Description: "A 1000-year old stone carving with sacred geometry.",
				InsightText: "This pillar was carved from a single block of Chunar sandstone and depicts the 12 Jyotirlingas.",
			},
			{
				ID: "heritage-2", Position: Point{280, 80}, Label: "Golden Spire View", Category: CategoryHeritage, Congestion: CongestionLow,
				Description: "Best spot to view the 15.5m high golden spire.",
				InsightText: "The spire is plated with 800kg of pure gold, donated by Maharaja Ranjit Singh.",
			},
			{
				ID: "heritage-3", Position: Point{100, 50}, Label: "Gyanvapi Well", Category: CategoryHeritage, Congestion: CongestionLow,
				Description: "The Well of Knowledge.",
				InsightText: "Legend says the original Jyotirlinga was hidden in this well during an invasion.",
			},
		},
	}
}
