package types

// TeamState projection (role-filtered):
//   round: 0 | 1 | 2
//   key4bit: string
//   key8bit: string
//   round1Complete: boolean
//   round2Complete: boolean
//   switchValues: { S0, S1, S2, S3 } | null // null until assignment
//   ciphertext: string
//   memberCount: number
//   teammateOnline: boolean
//   role: "encrypt" | "decrypt"
//   teammateRole?: "encrypt" | "decrypt"
//   members: [{ connectionId, role, online }]
//   assignedNumber?: number  // encrypt member only, never sent to decrypt
//   encryptionValue?: number // decrypt member only, never sent to encrypt
