package puzzle

// The circuit's truth table: one key per S3 S2 S1 S0 combination.
var lookupTable = []Entry{
	{Switches: Switches{S3: 0, S2: 0, S1: 0, S0: 0}, Key: "0000"},
	{Switches: Switches{S3: 0, S2: 0, S1: 0, S0: 1}, Key: "1001"},
	{Switches: Switches{S3: 0, S2: 0, S1: 1, S0: 0}, Key: "0011"},
	{Switches: Switches{S3: 0, S2: 0, S1: 1, S0: 1}, Key: "1010"},
	{Switches: Switches{S3: 0, S2: 1, S1: 0, S0: 0}, Key: "0110"},
	{Switches: Switches{S3: 0, S2: 1, S1: 0, S0: 1}, Key: "1111"},
	{Switches: Switches{S3: 0, S2: 1, S1: 1, S0: 0}, Key: "0101"},
	{Switches: Switches{S3: 0, S2: 1, S1: 1, S0: 1}, Key: "1100"},
	{Switches: Switches{S3: 1, S2: 0, S1: 0, S0: 0}, Key: "1100"},
	{Switches: Switches{S3: 1, S2: 0, S1: 0, S0: 1}, Key: "0111"},
	{Switches: Switches{S3: 1, S2: 0, S1: 1, S0: 0}, Key: "1111"},
	{Switches: Switches{S3: 1, S2: 0, S1: 1, S0: 1}, Key: "0110"},
	{Switches: Switches{S3: 1, S2: 1, S1: 0, S0: 0}, Key: "1010"},
	{Switches: Switches{S3: 1, S2: 1, S1: 0, S0: 1}, Key: "0011"},
	{Switches: Switches{S3: 1, S2: 1, S1: 1, S0: 0}, Key: "1001"},
	{Switches: Switches{S3: 1, S2: 1, S1: 1, S0: 1}, Key: "0000"},
}

// Numbers handed to the encrypt-role member, cycled by queue position.
var assignedNumbers = []int{
	42, 198, 7, 154,
	233, 89, 16, 201,
	64, 175, 29, 247,
	110, 3, 186, 95,
}
