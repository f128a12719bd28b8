package timefit

const (
	luaClaimRange = `
		-- Atomically claim [start, stop) in a timeline sorted set
		-- KEYS[1] = timeline ranges key
		-- ARGV[1] = start (unix micros)
		-- ARGV[2] = stop (unix micros)
		-- ARGV[3] = member payload (JSON)
		-- Returns: {1} on success, {0, member} when a placed range overlaps
		--
		-- Members are scored by start time, so the only candidate for an
		-- overlap is the placed range with the greatest start below stop

		local prev = redis.call(
			'ZREVRANGEBYSCORE', KEYS[1], '(' .. ARGV[2], '-inf', 'LIMIT', 0, 1
		)
		if #prev > 0 then
			local member = cjson.decode(prev[1])
			if tonumber(member.stop) > tonumber(ARGV[1]) then
				return {0, prev[1]}
			end
		end

		redis.call('ZADD', KEYS[1], ARGV[1], ARGV[3])
		return {1}
		`

	luaDrainRanges = `
		-- Atomically read all placed ranges and delete the timeline key,
		-- used when archiving a timeline to cold storage
		-- KEYS[1] = timeline ranges key
		-- Returns: the member payloads in start order

		local members = redis.call('ZRANGE', KEYS[1], 0, -1)
		redis.call('DEL', KEYS[1])
		return members
		`
)
