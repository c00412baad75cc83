package types

// Client -> Server
// join_team:
//   teamId: string
//   teamName: string
//   role: "encrypt" | "decrypt" (trimmed, case-insensitive)
//
// submit_round1_key:
//   teamId: string
//   key: string // 4-char binary
//
// submit_encryption:
//   teamId: string
//   ciphertext: string // opaque, produced off-band by the encrypt member
//   plaintext: string  // decimal restatement of the assigned number
//
// submit_decryption:
//   teamId: string
//   decryptedValue: string // compared string-exact against plaintext

// Server -> Client
// team_state:
//   data: TeamState projection (see projection.go)
//
// teammate_joined / teammate_left:
//   connectionId: string
//   memberCount: number // joined: slot count; left: online count
//
// round1_result:
//   success: boolean
//   message: string
//   waitingForTeammate?: boolean // true when only one correct submission so far
//   key8bit?: string             // present on round completion
//
// encryption_result:
//   success: boolean
//   message: string
//
// ciphertext_received:
//   ciphertext: string
//
// decryption_result:
//   success: boolean
//   message: string
//   timeElapsed?: number  // ms, on success
//   resubmissions?: number
//
// competition_complete:
//   timeElapsed: number // ms
//   resubmissions: number
//
// error:
//   message: string
