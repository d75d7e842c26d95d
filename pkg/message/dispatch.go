package message

// Dispatch reports the command ID carried by cmd, for a synchronous
// test-fixture slave loop: read a command, Dispatch on it, call the
// matching Send* helper. ok is false if cmd is not a command frame.
func Dispatch(cmd *Message) (id CommandID, ok bool) {
	if !cmd.IsCommand() {
		return 0, false
	}
	return cmd.CommandID, true
}
