package lookup

var Closest = closest
